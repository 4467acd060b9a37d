// This program provides administration tooling against a running
// memory ledger service.
package main

import "github.com/memledger/memledger/app/tooling/admin/commands"

func main() {
	commands.Execute()
}
