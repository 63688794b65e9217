package vaultpb

// EncryptKeysRequest asks the vault for the key bundle belonging to a
// system code, mirroring KeyCodeHelper's EncryptKeysRequest(system_code=...).
type EncryptKeysRequest struct {
	SystemCode string `json:"system_code"`
}

// EncryptKeysResponse carries the vault's opaque ciphertext. encrypted_data
// decrypts, under the shared symmetric key, to a JSON object with the four
// base64-PEM fields (private_key, refresh_private_key, public_key,
// refresh_public_key).
type EncryptKeysResponse struct {
	EncryptedData []byte `json:"encrypted_data"`
}
