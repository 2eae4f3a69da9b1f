package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CVDESK_TEST_MODE") == "" {
			_ = os.Setenv("CVDESK_TEST_MODE", "1")
		}
	})
}
