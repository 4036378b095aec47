// Package password implements the password verifier and hasher consumed by the
// authentication core.
//
// # Output format
//
// New hashes are argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Multi] also verifies bcrypt hashes ($2a$, $2b$, $2y$) so accounts imported
// from older systems keep working. It implements [Upgrader]: bcrypt hashes and
// argon2id hashes weaker than the current config report true, and the engine
// re-hashes them with argon2id after the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other deliveryAuth package.
//   - Log plaintext passwords.
package password
