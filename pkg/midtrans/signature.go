package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// VerifySignature checks that a webhook notification was produced by Midtrans.
//
// Midtrans signs notifications with
// sha512(order_id + status_code + gross_amount + server_key), lowercase hex.
// The comparison is constant time; a mismatching signature must not leak the
// position of the first differing byte.
func VerifySignature(orderRef, statusCode, grossAmount, signature, serverKey string) bool {
	if orderRef == "" || statusCode == "" || grossAmount == "" || signature == "" || serverKey == "" {
		return false
	}

	sum := sha512.Sum512([]byte(orderRef + statusCode + grossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
