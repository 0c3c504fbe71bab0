package database

import (
	"net/http"

	"custody-processor/utility/appError"
	"custody-processor/utility/errorcode"
	"custody-processor/utility/logger"

	"github.com/jinzhu/gorm"
)

// IRepository ... Interface definition for IRepository
type IRepository interface {
	Get(id interface{}, model interface{}) error
	GetByFieldName(field interface{}, model interface{}) error
	FetchByFieldName(field interface{}, model interface{}) error
	Fetch(model interface{}) error
	Create(model interface{}) error
	Update(id interface{}, model interface{}) error
	FindOrCreate(checkExistOrUpdate interface{}, model interface{}) error
	UpdateOrCreate(checkExistOrUpdate interface{}, model interface{}, update interface{}) error
	Db() *gorm.DB
}

// BaseRepository ... Model definition for database base repository
type BaseRepository struct {
	Database
}

// Get ... Retrieves a specified record from the database for a given id
func (repo *BaseRepository) Get(id interface{}, model interface{}) error {
	if err := repo.DB.First(model, id).Error; err != nil {
		logger.Error("Error with repository Get : %+v", err)
		return repoError(err)
	}
	return nil
}

// GetByFieldName ... Retrieves a record for the specified model from the database for a given field name
func (repo *BaseRepository) GetByFieldName(field interface{}, model interface{}) error {
	if err := repo.DB.Where(field).First(model).Error; err != nil {
		logger.Error("Error with repository GetByFieldName : %+v", err)
		return repoError(err)
	}
	return nil
}

// FetchByFieldName ... Retrieves all records for the specified model from the database for a given field name
func (repo *BaseRepository) FetchByFieldName(field interface{}, model interface{}) error {
	if err := repo.DB.Where(field).Find(model).Error; err != nil {
		logger.Error("Error with repository FetchByFieldName : %s", err)
		return repoError(err)
	}
	return nil
}

// Fetch ... Retrieves all records from the database for a given model
func (repo *BaseRepository) Fetch(model interface{}) error {
	if err := repo.DB.Find(model).Error; err != nil {
		logger.Error("Error with repository Fetch : %s", err)
		return repoError(err)
	}
	return nil
}

// Create ... Create a record on the database for a the given model
func (repo *BaseRepository) Create(model interface{}) error {
	if err := repo.DB.Create(model).Error; err != nil {
		logger.Error("Error with repository Create : %s", err)
		return repoError(err)
	}
	return nil
}

// Update ... Update a specified record from the database for a given id
func (repo *BaseRepository) Update(id, model interface{}) error {
	if err := repo.DB.Model(id).Update(model).Error; err != nil {
		logger.Error("Error with repository Update : %s", err)
		return repoError(err)
	}
	repo.DB.Where(id).First(model)
	return nil
}

// FindOrCreate ...
func (repo *BaseRepository) FindOrCreate(checkExistOrUpdate interface{}, model interface{}) error {
	if err := repo.DB.FirstOrCreate(model, checkExistOrUpdate).Error; err != nil {
		logger.Error("Error with repository FindOrCreate : %s", err)
		return repoError(err)
	}
	return nil
}

// UpdateOrCreate ...
func (repo *BaseRepository) UpdateOrCreate(checkExistOrUpdate interface{}, model interface{}, update interface{}) error {
	if err := repo.DB.Where(checkExistOrUpdate).Assign(update).FirstOrCreate(model).Error; err != nil {
		logger.Error("Error with repository UpdateOrCreate : %s", err)
		return repoError(err)
	}
	return nil
}

type TX struct {
	tx  *gorm.DB
	err error
}

func NewTx(Db *gorm.DB) *TX {
	tx := Db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if err := tx.Error; err != nil {
		return &TX{
			tx:  tx,
			err: repoError(err),
		}
	}
	return &TX{
		tx:  tx,
		err: nil,
	}
}

func (db *TX) Update(model, update interface{}) *TX {
	if db.err != nil {
		return db
	}
	if err := db.tx.Model(model).Update(update).Error; err != nil {
		db.tx.Rollback()
		return &TX{
			tx:  db.tx,
			err: repoError(err),
		}
	}
	return &TX{
		tx:  db.tx,
		err: nil,
	}
}

func (db *TX) Exec(sql string, values ...interface{}) *TX {
	if db.err != nil {
		return db
	}
	if err := db.tx.Exec(sql, values...).Error; err != nil {
		db.tx.Rollback()
		return &TX{
			tx:  db.tx,
			err: repoError(err),
		}
	}
	return &TX{
		tx:  db.tx,
		err: nil,
	}
}

func (db *TX) Create(model interface{}) *TX {
	if db.err != nil {
		return db
	}
	if err := db.tx.Create(model).Error; err != nil {
		db.tx.Rollback()
		return &TX{
			tx:  db.tx,
			err: repoError(err),
		}
	}
	return &TX{
		tx:  db.tx,
		err: nil,
	}
}

func (db *TX) Commit() error {
	if db.err != nil {
		return db.err
	}
	if err := db.tx.Commit().Error; err != nil {
		return repoError(err)
	}
	return nil
}

func repoError(err error) error {
	if err == gorm.ErrRecordNotFound {
		return appError.Err{
			ErrType: errorcode.RECORD_NOT_FOUND,
			ErrCode: http.StatusNotFound,
			Err:     err,
		}
	}
	return appError.Err{
		ErrType: errorcode.SERVER_ERR,
		ErrCode: http.StatusInternalServerError,
		Err:     err,
	}
}

func (repo *BaseRepository) Db() *gorm.DB {
	return repo.DB
}
