package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/m-hollow/NoirDB/internal/config"
	"github.com/m-hollow/NoirDB/internal/importer"
	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/rs/zerolog/log"
)

func main() {
	peopleFile := flag.String("people", "json_data/fin_people_list.json", "影人数据文件")
	moviesFile := flag.String("movies", "json_data/fin_movie_list.json", "电影数据文件")
	starsFile := flag.String("stars", "", "主演名单文件（JSON 字符串数组），为空时使用内置名单")
	failLogFile := flag.String("fail-log", "json_data/fail_log.json", "失败记录输出文件")
	skipPeople := flag.Bool("skip-people", false, "跳过影人导入")
	skipMovies := flag.Bool("skip-movies", false, "跳过电影导入")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("数据库连接失败")
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("数据库迁移失败")
	}

	im := importer.New(repository.NewRepositories(db))
	if err := im.CreateJobs(); err != nil {
		log.Fatal().Err(err).Msg("职位初始化失败")
	}

	if !*skipPeople {
		people, err := importer.LoadJSON[importer.PersonRecord](*peopleFile)
		if err != nil {
			log.Fatal().Err(err).Msg("读取影人数据失败")
		}
		added := 0
		for _, rec := range people {
			if _, err := im.AddPerson(rec); err != nil {
				log.Error().Err(err).Str("name", rec.Name).Msg("影人导入失败")
				continue
			}
			added++
		}
		log.Info().Int("loaded", len(people)).Int("added", added).Msg("影人导入完成")
	}

	if !*skipMovies {
		movies, err := importer.LoadJSON[importer.MovieRecord](*moviesFile)
		if err != nil {
			log.Fatal().Err(err).Msg("读取电影数据失败")
		}
		failLog := importer.NewFailLog()
		for _, rec := range movies {
			if _, err := im.AddMovie(rec, failLog); err != nil {
				log.Error().Err(err).Str("title", rec.Title).Msg("电影导入失败")
			}
		}
		if err := failLog.Save(*failLogFile); err != nil {
			log.Error().Err(err).Msg("失败记录保存失败")
		}
		log.Info().Int("loaded", len(movies)).Int("failures", failLog.Len()).Str("fail_log", *failLogFile).Msg("电影导入完成")
	}

	stars := importer.DefaultStars
	if *starsFile != "" {
		stars, err = importer.LoadJSON[string](*starsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("读取主演名单失败")
		}
	}
	missed, err := im.MarkStarringRoles(stars)
	if err != nil {
		log.Fatal().Err(err).Msg("主演标记失败")
	}
	log.Info().Int("stars", len(stars)).Strs("missed", missed).Msg("主演标记完成")
}
