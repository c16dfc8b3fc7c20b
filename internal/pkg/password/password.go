// Package password concentra o hashing de senhas com bcrypt.
// O salt aleatório é embutido no hash gerado, então Hash nunca é determinístico
// e Verify re-hasheia o texto puro com o salt extraído do hash armazenado.
package password

import "golang.org/x/crypto/bcrypt"

// Hash gera um hash bcrypt (one-way, com salt aleatório) para a senha em texto puro.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara a senha em texto puro com o hash armazenado.
// Falha fechado: hash malformado retorna false, nunca propaga pânico ou erro.
func Verify(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
