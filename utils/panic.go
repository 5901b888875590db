package utils

import (
	"fmt"
	"github.com/vuuvv/structlayout/log"
)

func Panicf(format string, a ...any) {
	panic(fmt.Sprintf(format, a...))
}

// Catch must be deferred. It logs a recovered panic and hands it to handler.
func Catch(handler func(reason any)) {
	if r := recover(); r != nil {
		log.Error(r)
		handler(r)
	}
}
