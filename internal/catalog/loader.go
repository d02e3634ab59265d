package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/domain"
)

// Static-tier cache keys for the two catalogs.
const (
	cacheKeyTasks        = "catalog_tasks"
	cacheKeyAchievements = "catalog_achievements"
)

// Loader reads the task and achievement catalogs from JSON config files.
// Both catalogs are small enough to load wholesale; parsed results are kept
// in the static cache tier so repeated lookups avoid disk and parsing.
type Loader struct {
	taskPath        string
	achievementPath string
	static          *cache.Cache
	validate        *validator.Validate
}

// NewLoader creates a loader for the given config paths. static may be nil,
// in which case every load hits disk.
func NewLoader(taskPath, achievementPath string, static *cache.Cache) *Loader {
	return &Loader{
		taskPath:        taskPath,
		achievementPath: achievementPath,
		static:          static,
		validate:        validator.New(),
	}
}

// Tasks returns the task catalog keyed by task ID.
func (l *Loader) Tasks() (map[string]domain.TaskDescriptor, error) {
	if l.static != nil {
		if v, ok := l.static.Get(cacheKeyTasks); ok {
			if tasks, ok := v.(map[string]domain.TaskDescriptor); ok {
				return tasks, nil
			}
		}
	}

	var cfg domain.TaskCatalogConfig
	if err := l.loadAndValidate(l.taskPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}

	tasks := make(map[string]domain.TaskDescriptor, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		if _, dup := tasks[task.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", domain.ErrInvalidInput, task.ID)
		}
		tasks[task.ID] = task
	}

	// Prerequisites must reference known tasks; a broken reference would
	// permanently wall off a task.
	for _, task := range cfg.Tasks {
		for _, prereq := range task.PrerequisiteIDs {
			if _, ok := tasks[prereq]; !ok {
				return nil, fmt.Errorf("%w: task %q references unknown prerequisite %q",
					domain.ErrInvalidInput, task.ID, prereq)
			}
		}
	}

	if l.static != nil {
		l.static.Set(cacheKeyTasks, tasks, 0)
	}
	return tasks, nil
}

// Achievements returns the achievement catalog as a slice; grant evaluation
// is a set computation, so order carries no meaning.
func (l *Loader) Achievements() ([]domain.AchievementDescriptor, error) {
	if l.static != nil {
		if v, ok := l.static.Get(cacheKeyAchievements); ok {
			if achievements, ok := v.([]domain.AchievementDescriptor); ok {
				return achievements, nil
			}
		}
	}

	var cfg domain.AchievementCatalogConfig
	if err := l.loadAndValidate(l.achievementPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Achievements))
	for _, a := range cfg.Achievements {
		if seen[a.ID] {
			return nil, fmt.Errorf("%w: duplicate achievement id %q", domain.ErrInvalidInput, a.ID)
		}
		seen[a.ID] = true
	}

	if l.static != nil {
		l.static.Set(cacheKeyAchievements, cfg.Achievements, 0)
	}
	return cfg.Achievements, nil
}

// Invalidate drops any cached catalogs, forcing a reload on next access.
// Used by admin config-reload paths.
func (l *Loader) Invalidate() {
	if l.static == nil {
		return
	}
	l.static.Invalidate(cacheKeyTasks)
	l.static.Invalidate(cacheKeyAchievements)
}

func (l *Loader) loadAndValidate(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return l.validate.Struct(out)
}
