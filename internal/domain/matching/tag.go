package matching

import (
	"time"

	"github.com/google/uuid"
)

// Tag is an immutable catalog entry.
type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"uniqueIndex;not null;column:name" json:"name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Tag) TableName() string { return "tag" }

// TagAffinity records one user's ranked interest in a tag. Priorities for
// a user form a gapless sequence starting at 1; 1 is the strongest
// interest. The sequence rule is enforced at the service layer.
type TagAffinity struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_affinity_user_tag;column:user_id" json:"user_id"`
	TagID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_affinity_user_tag;column:tag_id" json:"tag_id"`
	Priority int       `gorm:"not null;column:priority" json:"priority"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TagAffinity) TableName() string { return "tag_affinity" }

// TagSimilarity is one undirected edge of the pairwise similarity graph,
// stored once per unordered pair with tag_a < tag_b (lexicographic on the
// uuid string). Self-similarity is always 1.0 and never stored.
type TagSimilarity struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagA       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair;column:tag_a" json:"tag_a"`
	TagB       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair;column:tag_b" json:"tag_b"`
	Similarity float64   `gorm:"not null;column:similarity" json:"similarity"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TagSimilarity) TableName() string { return "tag_similarity" }

// CanonicalPair orders two tag ids the way tag_similarity stores them.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// Block excludes one supervisor from a student's candidate pool.
type Block struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair;column:student_id" json:"student_id"`
	SupervisorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair;column:supervisor_id" json:"supervisor_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Block) TableName() string { return "block" }
