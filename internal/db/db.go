package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/vaporchat/vaporchat/internal/models"
	"github.com/vaporchat/vaporchat/internal/room"
)

// Connect opens the MySQL connection and migrates the schema.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &room.Room{}, &room.Message{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
