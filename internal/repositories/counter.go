package repositories

import (
	"errors"

	"github.com/kedarnathdev/protectedData/internal/models"
	"gorm.io/gorm"
)

// NextSerial allocates the next drop serial number. The increment is a
// single in-place UPDATE inside a transaction, so two concurrent creations
// can never read the same value: the second increment blocks on the row
// lock until the first transaction commits.
func NextSerial(db *gorm.DB) (int64, error) {
	var serial int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Counter{}).
			Where("name = ?", models.DropSerialCounter).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("serial counter row missing")
		}

		var counter models.Counter
		if err := tx.Where("name = ?", models.DropSerialCounter).First(&counter).Error; err != nil {
			return err
		}
		serial = counter.Value
		return nil
	})
	return serial, err
}
