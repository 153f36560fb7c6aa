// Command keygen はトークン署名用のEd25519鍵ペアをPEM形式で生成します。
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	jwtmw "account_backend/internal/platform/jwt"
)

func main() {
	dir := flag.String("out", ".", "output directory")
	force := flag.Bool("force", false, "overwrite existing key files")
	flag.Parse()

	if err := run(*dir, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, force bool) error {
	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")

	if !force {
		for _, p := range []string{privPath, pubPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists. Refusing to overwrite (use -force)", p)
			}
		}
	}

	priv, pub, err := jwtmw.GenerateKeyPair()
	if err != nil {
		return err
	}
	if err := os.WriteFile(privPath, priv, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", privPath, err)
	}
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", pubPath, err)
	}

	fmt.Printf("Private key written to %s\nPublic key written to %s\n", privPath, pubPath)
	fmt.Printf("Set JWT_PRIVATE_KEY_FILE=%s\n", privPath)
	return nil
}
