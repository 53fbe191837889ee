package store

import (
	"github.com/lefinal/masc-match/errors"
	"github.com/stretchr/testify/suite"
	"testing"
)

// dbMigrationsToDoSuite tests dbMigrationsToDo.
type dbMigrationsToDoSuite struct {
	suite.Suite
}

func (suite *dbMigrationsToDoSuite) TestZero() {
	migrations, err := dbMigrationsToDo(dbVersionZero)
	suite.Require().NoError(err, "should not fail")
	suite.Equal(dbMigrations, migrations, "should return all migrations")
}

func (suite *dbMigrationsToDoSuite) TestFirst() {
	migrations, err := dbMigrationsToDo("1.0")
	suite.Require().NoError(err, "should not fail")
	suite.Require().Len(migrations, len(dbMigrations)-1, "should return all but the first")
	suite.Equal(dbVersion("1.1"), migrations[0].version)
}

func (suite *dbMigrationsToDoSuite) TestLatest() {
	migrations, err := dbMigrationsToDo(dbMigrations[len(dbMigrations)-1].version)
	suite.Require().NoError(err, "should not fail")
	suite.Empty(migrations, "should return no migrations")
}

func (suite *dbMigrationsToDoSuite) TestUnknown() {
	_, err := dbMigrationsToDo("42.0")
	suite.True(errors.Is(err, errors.KindResourceNotFound), "should fail with not found")
}

func TestDBMigrationsToDo(t *testing.T) {
	suite.Run(t, new(dbMigrationsToDoSuite))
}
