package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"net/url"
	"sort"
)

// SignatureHeader — заголовок, в котором провайдер передаёт подпись webhook.
const SignatureHeader = "X-Provider-Signature"

// ComputeSignature вычисляет подпись webhook запроса.
//
// Схема провайдера: к полному URL запроса конкатенируются form-параметры
// (ключ+значение) в лексикографическом порядке ключей, результат
// подписывается HMAC-SHA1 с auth token и кодируется в base64.
func ComputeSignature(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := requestURL
	for _, k := range keys {
		for _, v := range form[k] {
			payload += k + v
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature проверяет подпись webhook запроса.
// Сравнение выполняется за константное время.
func ValidateSignature(authToken, requestURL string, form url.Values, signature string) bool {
	expected := ComputeSignature(authToken, requestURL, form)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
