// Command fetchcache fetches API endpoints through the request cache and
// manages its entries. A shared provider (redis, or memcache with the redis
// index) keeps entries across runs; in-process providers only live for one
// invocation.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
