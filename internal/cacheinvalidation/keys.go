package cacheinvalidation

import "fmt"

// Prefixes of every context that caches rows of a shared table. Users and
// auth both read the users table, each under its own naming scheme.
const (
	UsersPrefix     = "users"
	AuthUserPrefix  = "auth:user"
	ProductsPrefix  = "products"
	DiscountsPrefix = "discounts"
)

var userPrefixes = []string{UsersPrefix, AuthUserPrefix}

func IDKey(prefix, id string) string       { return fmt.Sprintf("%s:id:%s", prefix, id) }
func EmailKey(prefix, email string) string { return fmt.Sprintf("%s:email:%s", prefix, email) }
func ListVersionKey(prefix string) string  { return prefix + ":list:version" }

func SecondaryKey(prefix, kind, v string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, kind, v)
}

// ListKey scopes a cached list page to the current list version so bumping
// the version orphans every page at once.
func ListKey(prefix string, version int64, query string) string {
	return fmt.Sprintf("%s:list:v%d:%s", prefix, version, query)
}
