// backend/services/works-service/cmd/workctl/main.go

package main

import (
	"os"

	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

func main() {
	utils.InitLogger("workctl")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
