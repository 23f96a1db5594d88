// Command palimpsest reads and renders palimpsest stories.
package main

import "github.com/papapumpkin/palimpsest/cmd"

func main() {
	cmd.Execute()
}
