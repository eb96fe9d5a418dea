package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CAMPUSHIRE_TEST_MODE") == "" {
			_ = os.Setenv("CAMPUSHIRE_TEST_MODE", "1")
		}
	})
}
