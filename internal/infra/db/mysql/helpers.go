package mysql

import "regexp"

// DefaultTable nama tabel hasil analisa
const DefaultTable = "traffic_sign_recommendations"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func validTableName(s string) bool { return tableNameRe.MatchString(s) }

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
