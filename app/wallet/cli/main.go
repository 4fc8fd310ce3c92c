package main

import "github.com/hashvale/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
