package bird

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const birdJSON = `[
  {
    "question_id": 0,
    "db_id": "california_schools",
    "question": "What is the highest eligible free rate for K-12 students in Alameda County?",
    "evidence": "Eligible free rate for K-12 = Free Meal Count (K-12) / Enrollment (K-12)",
    "SQL": "SELECT frpm.Percent FROM frpm WHERE frpm.County = 'Alameda' ORDER BY frpm.Percent DESC LIMIT 1",
    "difficulty": "simple"
  },
  {
    "question_id": 1,
    "db_id": "california_schools",
    "question": "How many schools are in Fremont?",
    "evidence": "",
    "SQL": "SELECT COUNT(*) FROM schools WHERE City = 'Fremont'",
    "difficulty": "simple"
  },
  {
    "question_id": 2,
    "db_id": "card_games",
    "question": "How many cards cost more than 5?",
    "evidence": "cost more than 5 refers to convertedManaCost > 5",
    "SQL": "SELECT COUNT(*) FROM cards WHERE convertedManaCost > 5",
    "difficulty": "moderate"
  }
]`

const spiderJSON = `[
  {"db_id": "concert_singer", "question": "How many singers do we have?", "query": "SELECT count(*) FROM singer"},
  {"db_id": "concert_singer", "question": "What are the names of all singers?", "query": "SELECT name FROM singer"}
]`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQuestions(t *testing.T) {
	questions, err := LoadQuestions(writeFixture(t, "dev.json", birdJSON))
	require.NoError(t, err)
	require.Len(t, questions, 3)

	first := questions[0]
	assert.Equal(t, 0, first.QuestionID)
	assert.Equal(t, "california_schools", first.DatabaseID)
	assert.Contains(t, first.Question, "Alameda County")
	assert.Contains(t, first.Evidence, "Free Meal Count")
	assert.Contains(t, first.SQL, "SELECT frpm.Percent")
	assert.Equal(t, "simple", first.Difficulty)
}

func TestLoadQuestionsMissingFile(t *testing.T) {
	_, err := LoadQuestions(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read questions file")
}

func TestLoadQuestionsMalformed(t *testing.T) {
	_, err := LoadQuestions(writeFixture(t, "dev.json", "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadSpiderQuestions(t *testing.T) {
	questions, err := LoadSpiderQuestions(writeFixture(t, "dev.json", spiderJSON))
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, 0, questions[0].QuestionID)
	assert.Equal(t, 1, questions[1].QuestionID)
	assert.Equal(t, "concert_singer", questions[0].DatabaseID)
	assert.Equal(t, "SELECT count(*) FROM singer", questions[0].SQL)
	assert.Empty(t, questions[0].Evidence)
	assert.Empty(t, questions[0].Difficulty)
}

func TestPrompt(t *testing.T) {
	withEvidence := Question{
		Question: "How many cards cost more than 5?",
		Evidence: "cost more than 5 refers to convertedManaCost > 5",
	}
	assert.Equal(t,
		"How many cards cost more than 5?\n\nEvidence: cost more than 5 refers to convertedManaCost > 5",
		withEvidence.Prompt())

	plain := Question{Question: "How many schools are in Fremont?", Evidence: "   "}
	assert.Equal(t, "How many schools are in Fremont?", plain.Prompt())
}

func TestFilter(t *testing.T) {
	questions, err := LoadQuestions(writeFixture(t, "dev.json", birdJSON))
	require.NoError(t, err)

	schools := Filter(questions, "california_schools", 0)
	require.Len(t, schools, 2)
	assert.Equal(t, 0, schools[0].QuestionID)
	assert.Equal(t, 1, schools[1].QuestionID)

	capped := Filter(questions, "california_schools", 1)
	require.Len(t, capped, 1)
	assert.Equal(t, 0, capped[0].QuestionID)

	assert.Empty(t, Filter(questions, "unknown_db", 0))
}

func TestDatabaseIDs(t *testing.T) {
	questions, err := LoadQuestions(writeFixture(t, "dev.json", birdJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"california_schools", "card_games"}, DatabaseIDs(questions))
}

func TestDatabasePath(t *testing.T) {
	path := DatabasePath("/data/bird/dev_databases", "california_schools")
	assert.Equal(t,
		filepath.Join("/data/bird/dev_databases", "california_schools", "california_schools.sqlite"),
		path)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	devPath := filepath.Join(dir, "dev.json")
	require.NoError(t, os.WriteFile(devPath, []byte(spiderJSON), 0o644))

	manifestPath := filepath.Join(dir, "dataset.yaml")
	manifest := "benchmark: spider\nquestions_file: " + devPath + "\ndatabase_root: " + dir + "\n"
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	m, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, BenchmarkSpider, m.Benchmark)

	questions, err := m.Questions()
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "concert_singer", questions[0].DatabaseID)

	assert.Equal(t, filepath.Join(dir, "concert_singer", "concert_singer.sqlite"),
		m.DatabasePath("concert_singer"))
}

func TestLoadManifestDefaultsToBird(t *testing.T) {
	path := writeFixture(t, "dataset.yaml", "questions_file: dev.json\ndatabase_root: databases\n")
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, BenchmarkBIRD, m.Benchmark)
}

func TestLoadManifestRejectsBadBenchmark(t *testing.T) {
	path := writeFixture(t, "dataset.yaml", "benchmark: wikisql\nquestions_file: dev.json\ndatabase_root: databases\n")
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "benchmark must be")
}

func TestManifestValidateRequiredFields(t *testing.T) {
	err := (&Manifest{Benchmark: BenchmarkBIRD, DatabaseRoot: "databases"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "questions_file is required")

	err = (&Manifest{Benchmark: BenchmarkBIRD, QuestionsFile: "dev.json"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_root is required")
}
