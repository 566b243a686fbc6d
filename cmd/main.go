package main

import (
	"github.com/stats-agent/cmd/agent"
)

func main() {
	agent.Execute()
}
