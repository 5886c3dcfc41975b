package speaker

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/voiceid/database"
	"github.com/kbukum/voiceid/embedding"
)

type speakerRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time
	Embeddings []embeddingRecord `gorm:"foreignKey:SpeakerID"`
}

func (speakerRecord) TableName() string { return "speakers" }

type embeddingRecord struct {
	ID        uint             `gorm:"primaryKey"`
	SpeakerID uint             `gorm:"index;not null"`
	Vector    embedding.Vector `gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time
}

func (embeddingRecord) TableName() string { return "speaker_embeddings" }

// Models returns the gorm models SQLStore needs migrated.
func Models() []interface{} {
	return []interface{}{&speakerRecord{}, &embeddingRecord{}}
}

// SQLStore keeps speakers and embeddings in two tables. Order follows
// insertion ids.
type SQLStore struct {
	db *database.DB
}

var _ ReadWriter = (*SQLStore)(nil)

// NewSQLStore wraps an open database. Call Migrate, or start the database
// component with WithAutoMigrate(Models()...), before use.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the speaker tables.
func (s *SQLStore) Migrate() error {
	return s.db.AutoMigrate(Models()...)
}

func (s *SQLStore) Speakers(ctx context.Context) ([]Speaker, error) {
	var records []speakerRecord
	err := s.db.WithContext(ctx).
		Preload("Embeddings", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, database.FromDatabase(err, "speaker")
	}

	out := make([]Speaker, 0, len(records))
	for _, r := range records {
		sp := Speaker{Name: r.Name, Embeddings: make([]embedding.Vector, 0, len(r.Embeddings))}
		for _, e := range r.Embeddings {
			sp.Embeddings = append(sp.Embeddings, e.Vector)
		}
		out = append(out, sp)
	}
	return out, nil
}

func (s *SQLStore) EmbeddingCount(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&embeddingRecord{}).Count(&n).Error; err != nil {
		return 0, database.FromDatabase(err, "speaker embedding")
	}
	return int(n), nil
}

func (s *SQLStore) AddEmbedding(ctx context.Context, name string, vec embedding.Vector) error {
	var sample embeddingRecord
	var existing []Speaker
	err := s.db.WithContext(ctx).Order("id").Limit(1).Find(&sample).Error
	if err != nil {
		return database.FromDatabase(err, "speaker embedding")
	}
	if sample.ID != 0 {
		existing = []Speaker{{Embeddings: []embedding.Vector{sample.Vector}}}
	}
	name, err = CheckEnrollment(name, vec, existing)
	if err != nil {
		return err
	}

	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		rec := speakerRecord{Name: name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
			return err
		}
		var found speakerRecord
		if err := tx.Where("name = ?", name).First(&found).Error; err != nil {
			return err
		}
		return tx.Create(&embeddingRecord{SpeakerID: found.ID, Vector: vec}).Error
	})
	if err != nil {
		return database.FromDatabase(err, "speaker")
	}
	return nil
}
