package importer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var yearPattern = regexp.MustCompile(`\d{4}$`)

// 作曲一栏的占位值，视为无作曲
var nullComposers = map[string]bool{
	"uncredited":  true,
	"none listed": true,
}

// DefaultStars 默认的主演名单
var DefaultStars = []string{
	"Humphrey Bogart", "Dan Duryea", "Glenn Ford", "Rita Hayworth", "Ida Lupino",
	"Robert Ryan", "Burt Lancaster", "Gloria Graham", "Barbara Stanwyck", "Sterling Hayden",
	"Edward G. Robinson", "Lauren Bacall", "Dana Andrews", "Richard Conte", "Orson Welles",
	"William Holden", "Joan Bennett", "Fred MacMurray", "Gloria Swanson", "Jane Greer",
	"Robert Mitchum", "Veronica Lake", "James Cagney", "Alan Ladd", "Brian Donlevy",
	"Lizabeth Scott", "Peter Lorre", "Kirk Douglas", "Mary Astor", "Audrey Totter",
	"Edmond O'Brien", "Gene Tierney", "Vincent Price", "Ava Gardner",
}

// Importer 数据导入
type Importer struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// New 创建导入器
func New(repos *repository.Repositories) *Importer {
	return &Importer{repos: repos, log: logging.Component("importer")}
}

// CreateJobs 写入五种职位，可重复执行
func (im *Importer) CreateJobs() error {
	for _, title := range model.JobTitles {
		if _, err := im.repos.Credit.EnsureJob(title); err != nil {
			return fmt.Errorf("ensure job %s: %w", title, err)
		}
	}
	return nil
}

// AddPerson 写入一位影人
func (im *Importer) AddPerson(rec PersonRecord) (*model.Person, error) {
	dob, err := parseDate(rec.DOB)
	if err != nil {
		return nil, fmt.Errorf("person %s dob: %w", rec.Name, err)
	}
	dod, err := parseDate(rec.DOD)
	if err != nil {
		return nil, fmt.Errorf("person %s dod: %w", rec.Name, err)
	}

	p := &model.Person{Name: rec.Name, DOB: dob, DOD: dod}
	if err := im.repos.Person.Create(p); err != nil {
		return nil, fmt.Errorf("create person %s: %w", rec.Name, err)
	}
	return p, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AddMovie 写入一部电影及其演职员与观看链接
// 单条演职员关联失败只记入 failLog，不影响其余条目
func (im *Importer) AddMovie(rec MovieRecord, failLog *FailLog) (*model.Movie, error) {
	movie := &model.Movie{
		Name:        rec.Title,
		ReleaseDate: rec.ReleaseDate,
		Studio:      rec.Studio,
	}

	if year, ok := ParseYear(rec.ReleaseDate); ok {
		movie.Year = &year
	} else {
		failLog.Add(rec.Title, fmt.Sprintf("year: no year in release date %q", rec.ReleaseDate))
	}

	basedOn, err := FormatBasedOn(rec.BasedOn)
	if err != nil {
		failLog.Add(rec.Title, fmt.Sprintf("based on: %v", err))
	}
	movie.BasedOn = basedOn

	if err := im.repos.Movie.Create(movie); err != nil {
		failLog.Add(rec.Title, fmt.Sprintf("movie: %v", err))
		return nil, fmt.Errorf("create movie %s: %w", rec.Title, err)
	}

	for _, pair := range rec.Cast {
		im.addCast(movie, pair, failLog)
	}
	for _, c := range CrewCredits(rec) {
		im.addCrew(movie, c, failLog)
	}
	for _, l := range rec.MediaLinks {
		link := &model.MediaLink{MovieID: movie.ID, URL: l.URL, Host: l.Host, Free: l.Free, Active: l.Active}
		if err := im.repos.MediaLink.Create(link); err != nil {
			failLog.Add(movie.Name, fmt.Sprintf("media link: %s: %v", l.URL, err))
		}
	}

	im.log.Debug().Int("movie_id", movie.ID).Str("name", movie.Name).Msg("movie imported")
	return movie, nil
}

func (im *Importer) addCast(movie *model.Movie, pair []string, failLog *FailLog) {
	if len(pair) < 2 {
		failLog.Add(movie.Name, fmt.Sprintf("cast: malformed entry %v", pair))
		return
	}
	name, role := pair[0], pair[1]

	person, err := im.repos.Person.FindByName(name)
	if err != nil || person == nil {
		failLog.Add(movie.Name, fmt.Sprintf("cast: person linkage, %s, %s", name, role))
		return
	}
	if err := im.repos.Credit.AddCast(&model.Cast{PersonID: person.ID, MovieID: movie.ID, Role: role}); err != nil {
		failLog.Add(movie.Name, fmt.Sprintf("cast: %s, %s: %v", name, role, err))
	}
}

func (im *Importer) addCrew(movie *model.Movie, c CrewCredit, failLog *FailLog) {
	job, err := im.repos.Credit.FindJob(c.Job)
	if err != nil || job == nil {
		failLog.Add(movie.Name, fmt.Sprintf("crew: job linkage, %s, %s", c.Name, c.Job))
		return
	}
	person, err := im.repos.Person.FindByName(c.Name)
	if err != nil || person == nil {
		failLog.Add(movie.Name, fmt.Sprintf("crew: person linkage, %s, %s", c.Name, c.Job))
		return
	}
	if err := im.repos.Credit.AddCrew(&model.Crew{PersonID: person.ID, MovieID: movie.ID, JobID: job.ID}); err != nil {
		failLog.Add(movie.Name, fmt.Sprintf("crew: %s, %s: %v", c.Name, c.Job, err))
	}
}

// ParseYear 取上映日期末尾的四位年份
func ParseYear(releaseDate string) (int, bool) {
	m := yearPattern.FindString(strings.TrimSpace(releaseDate))
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// FormatBasedOn 把原著字段转成 "作品 By 作者"，"n/a" 原样保留
func FormatBasedOn(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []string
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("unexpected value %s", string(raw))
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("expected [work, author], got %d items", len(parts))
	}
	return cases.Title(language.English).String(parts[0] + " by " + parts[1]), nil
}

// CrewCredit 一条待写入的幕后记录
type CrewCredit struct {
	Name string
	Job  string
}

// CrewCredits 展开电影数据中的幕后人员
func CrewCredits(rec MovieRecord) []CrewCredit {
	credits := []CrewCredit{
		{Name: rec.Director, Job: model.JobDirector},
		{Name: rec.Camera, Job: model.JobCinematographer},
	}
	if !nullComposers[strings.ToLower(strings.TrimSpace(rec.Composer))] {
		credits = append(credits, CrewCredit{Name: rec.Composer, Job: model.JobComposer})
	}
	for _, p := range rec.Producers {
		credits = append(credits, CrewCredit{Name: p, Job: model.JobProducer})
	}
	for _, w := range rec.Writers {
		credits = append(credits, CrewCredit{Name: w, Job: model.JobWriter})
	}
	return credits
}

// MarkStarringRoles 把名单中每位影人的全部角色标记为主演
// 名字按不区分大小写的包含关系匹配，必须恰好命中一人；返回未能匹配的名字
func (im *Importer) MarkStarringRoles(names []string) ([]string, error) {
	var missed []string
	for _, name := range names {
		people, err := im.repos.Person.SearchByName(name)
		if err != nil {
			return missed, fmt.Errorf("search %s: %w", name, err)
		}
		if len(people) != 1 {
			im.log.Warn().Str("name", name).Int("matches", len(people)).Msg("star not resolved")
			missed = append(missed, name)
			continue
		}

		n, err := im.repos.Credit.MarkStarring(people[0].ID)
		if err != nil {
			return missed, fmt.Errorf("mark starring %s: %w", name, err)
		}
		im.log.Info().Str("name", people[0].Name).Int64("roles", n).Msg("starring roles marked")
	}
	return missed, nil
}
