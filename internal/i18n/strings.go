package i18n

// String tables for the two supported languages. Keys are shared with the
// HTML templates; keep the two maps aligned when adding entries.

var english = map[string]string{
	"appName":       "CV Desk",
	"login":         "Sign In",
	"logout":        "Sign Out",
	"email":         "Email",
	"password":      "Password",
	"dashboard":     "Dashboard",
	"myTasks":       "My Tasks",
	"newTask":       "New Task",
	"allTasks":      "All Tasks",
	"accounts":      "Accounts",
	"users":         "Users",
	"profile":       "Profile",
	"search":        "Search",
	"export":        "Export CSV",
	"save":          "Save",
	"cancel":        "Cancel",
	"delete":        "Delete",
	"edit":          "Edit",
	"add":           "Add",
	"allStatuses":   "All Status",
	"pending":       "Pending",
	"inProgress":    "In Progress",
	"inReview":      "In Review",
	"completed":     "Completed",
	"paid":          "Paid",
	"unpaid":        "Unpaid",
	"clientName":    "Client Name",
	"services":      "Services",
	"status":        "Status",
	"designer":      "Designer",
	"reviewer":      "Reviewer",
	"date":          "Date",
	"payment":       "Payment",
	"serviceName":   "Service Name",
	"username":      "Username",
	"notes":         "Notes",
	"loginURL":      "Login URL",
	"name":          "Name",
	"role":          "Role",
	"workplace":     "Workplace",
	"phone":         "Phone",
	"department":    "Department",
	"accessDenied":  "Access Denied",
	"accessDeniedDescription": "You do not have permission to access this page.",
	"welcomeBack":   "Welcome back",
	"addAccount":    "Add Account",
	"totalTasks":    "Total Tasks",
	"recentTasks":   "Recent Tasks",
	"teamWorkload":  "Team Workload",
}

var arabic = map[string]string{
	"appName":       "مكتب السير الذاتية",
	"login":         "تسجيل الدخول",
	"logout":        "تسجيل الخروج",
	"email":         "البريد الإلكتروني",
	"password":      "كلمة المرور",
	"dashboard":     "لوحة التحكم",
	"myTasks":       "مهامي",
	"newTask":       "مهمة جديدة",
	"allTasks":      "جميع المهام",
	"accounts":      "الحسابات",
	"users":         "المستخدمون",
	"profile":       "الملف الشخصي",
	"search":        "بحث",
	"export":        "تصدير CSV",
	"save":          "حفظ",
	"cancel":        "إلغاء",
	"delete":        "حذف",
	"edit":          "تعديل",
	"add":           "إضافة",
	"allStatuses":   "كل الحالات",
	"pending":       "قيد الانتظار",
	"inProgress":    "قيد التنفيذ",
	"inReview":      "قيد المراجعة",
	"completed":     "مكتملة",
	"paid":          "مدفوع",
	"unpaid":        "غير مدفوع",
	"clientName":    "اسم العميل",
	"services":      "الخدمات",
	"status":        "الحالة",
	"designer":      "المصمم",
	"reviewer":      "المراجع",
	"date":          "التاريخ",
	"payment":       "الدفع",
	"serviceName":   "اسم الخدمة",
	"username":      "اسم المستخدم",
	"notes":         "ملاحظات",
	"loginURL":      "رابط الدخول",
	"name":          "الاسم",
	"role":          "الدور",
	"workplace":     "جهة العمل",
	"phone":         "الهاتف",
	"department":    "القسم",
	"accessDenied":  "غير مصرح لك بالوصول",
	"accessDeniedDescription": "ليس لديك صلاحية للوصول إلى هذه الصفحة.",
	"welcomeBack":   "مرحباً بعودتك",
	"addAccount":    "إضافة حساب",
	"totalTasks":    "إجمالي المهام",
	"recentTasks":   "أحدث المهام",
	"teamWorkload":  "توزيع العمل",
}
