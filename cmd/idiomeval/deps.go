package main

import (
	"github.com/stellarlinkco/idiom-eval/internal/llm"
)

// Seam for tests: lets the integration suite swap in a stub client without
// touching credentials or the network.
var newClientForModel = llm.NewClientForModel
