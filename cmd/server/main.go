package main

import "thodemy/internal/app/server"

func main() {
	server.Run()
}
