package main

import "github.com/medrail/casebook/internal/runtime"

func main() {
	runtime.New().Run()
}
