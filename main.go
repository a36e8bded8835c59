package main

import "github.com/skyersoft/uk-shares-and-stocks-tax-calculation-sub001/cmd"

func main() {
	cmd.Execute()
}
