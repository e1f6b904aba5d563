// Package secure keeps the Opsgenie API key encrypted in memory while a
// command holds it.
//
// The key is sealed into a memguard enclave as soon as it is read from a
// prompt, flag or form and is only decrypted inside Reveal, right before it
// is handed to splunkd:
//
//	sealed := secure.SealString(apiKey)
//	defer sealed.Destroy()
//
//	err := sealed.Reveal(func(key string) error {
//	    return run(ctx, key)
//	})
//
// Enclaves are encrypted with XSalsa20Poly1305 and the decrypted buffer is
// mlocked and wiped after use. This does not protect against an attacker with
// access to the running process.
package secure
