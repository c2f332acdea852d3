package main

import (
	"github.com/ValentinKolb/rdv/cmd"
)

func main() {
	cmd.Execute()
}
