package main

import "fmt"

func main() {
	name := "gopher"
	fmt.Printf("hello %d\n", name)
}
