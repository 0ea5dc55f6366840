// policychat is a terminal chat widget and assistant endpoint for
// workplace policy questions.
package main

import "github.com/linanwx/policychat/cmd"

func main() {
	cmd.Execute()
}
