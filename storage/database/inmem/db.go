package inmemdb

import (
	"sync"

	"github.com/trezcool/eduspace/core/roster"
	"github.com/trezcool/eduspace/core/user"
)

// DB is a mutex-guarded in-memory store. Used in tests and local dev; it
// emulates the SQL schema's unique constraints so the duplicate-signal
// behavior matches production.
type DB struct {
	mu sync.RWMutex

	users    map[int]*user.User
	faculty  map[int]*roster.Faculty
	students map[int]*roster.Student
	batches  map[string]*roster.Batch

	userPK    int
	facultyPK int
	studentPK int
	batchPK   int
}

func NewDB() *DB {
	return &DB{
		users:    make(map[int]*user.User),
		faculty:  make(map[int]*roster.Faculty),
		students: make(map[int]*roster.Student),
		batches:  make(map[string]*roster.Batch),
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[int]*user.User)
	db.faculty = make(map[int]*roster.Faculty)
	db.students = make(map[int]*roster.Student)
	db.batches = make(map[string]*roster.Batch)
	db.userPK, db.facultyPK, db.studentPK, db.batchPK = 0, 0, 0, 0
}
