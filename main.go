package main

import "github.com/SirCypkowskyy/ag-ui-compatible-openwebui/cmd"

func main() {
	cmd.Execute()
}
