// Package models holds the GORM models of the catalog price tables the
// indexer reads. Table and column names follow the Magento schema so the
// indexer can run against a replica of a store database.
package models
