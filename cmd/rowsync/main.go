package main

import "github.com/datazip-inc/rowsync"

func main() {
	rowsync.Execute()
}
