package main

import (
	"fmt"
	"os"
)

func main() {
	app := newAppContext()
	cmd := newRootCommand(app)
	err := cmd.Execute()
	app.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
