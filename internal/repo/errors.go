package repo

import "gorm.io/gorm"

var errNotFound = gorm.ErrRecordNotFound
