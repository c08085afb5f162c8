package repository

import (
	"errors"

	"gorm.io/gorm"
)

// isDuplicate reports whether err is a unique-constraint violation. Requires
// TranslateError on the gorm config, which both Connect and the test harness
// set.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
