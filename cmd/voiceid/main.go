// Command voiceid labels the speakers of an audio recording and manages the
// known-speaker store.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
