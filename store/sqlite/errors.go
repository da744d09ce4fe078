package sqlite

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// uniqueViolation reports whether err is a UNIQUE constraint failure and
// returns the offending columns without their table prefix:
// "UNIQUE constraint failed: bureaus.code, bureaus.direction_id" gives
// [code direction_id].
func uniqueViolation(err error) ([]string, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil, false
	}
	if se.ExtendedCode != sqlite3.ErrConstraintUnique && se.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return nil, false
	}
	_, list, found := strings.Cut(se.Error(), "constraint failed: ")
	if !found {
		return nil, true
	}
	var cols []string
	for _, col := range strings.Split(list, ",") {
		col = strings.TrimSpace(col)
		if _, name, ok := strings.Cut(col, "."); ok {
			col = name
		}
		cols = append(cols, col)
	}
	return cols, true
}

func foreignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
