package main

import (
	"context"
	"cqscraper/cmd/cqscraper/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
