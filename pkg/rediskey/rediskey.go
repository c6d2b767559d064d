package rediskey

import "fmt"

// Key namespaces shared across services.
const (
	AuthTokenPrefix = "authtoken"
	LoginFailPrefix = "login:fails"
	LoginLockPrefix = "login:lock"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildAuthTokenKey returns "authtoken:{token}"
func BuildAuthTokenKey(token string) string {
	return NamespaceKey(AuthTokenPrefix, token)
}

// BuildLoginFailKey returns "login:fails:{ip}"
func BuildLoginFailKey(ip string) string {
	return NamespaceKey(LoginFailPrefix, ip)
}

// BuildLoginLockKey returns "login:lock:{ip}"
func BuildLoginLockKey(ip string) string {
	return NamespaceKey(LoginLockPrefix, ip)
}
