// Package main is the entry point of vidhunt.
package main

import (
	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/cmd"
	"github.com/vidhunt/vidhunt/config"
	"github.com/vidhunt/vidhunt/internal/cache"
	"github.com/vidhunt/vidhunt/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
