// Команда keyhash печатает bcrypt-хеш API-ключа бота для bot_api_key_hash.
//
//	go run ./cmd/keyhash <key>
package main

import (
	"fmt"
	"os"

	"github.com/afinadao/membership/internal/lib/secret"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: keyhash <key>")
		os.Exit(2)
	}
	hash, err := secret.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
