package main

import "github.com/KaramelBytes/surveytab/cmd"

func main() {
	cmd.Execute()
}
