package appcontext

import "net/url"

// redactDSN 記錄 log 時隱藏密碼
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
