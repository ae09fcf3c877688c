package main

import (
	"flag"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toddlerya/entitygraph/graph"
	"github.com/toddlerya/entitygraph/loader"
	"github.com/toddlerya/entitygraph/model"
)

func main() {
	cfg := model.DefaultConfig()
	sizes := loader.Sizes{Departments: 10, Employees: 200, Teachers: 50, Students: 1000, Users: 100}
	flag.StringVar(&cfg.Path, "db", cfg.Path, "sqlite 文件路径")
	flag.BoolVar(&cfg.ReMigration, "remigrate", cfg.ReMigration, "启动时删除并重建表")
	flag.IntVar(&sizes.Students, "students", sizes.Students, "学生数量")
	flag.IntVar(&sizes.Teachers, "teachers", sizes.Teachers, "老师数量")
	debug := flag.Bool("debug", false, "输出 debug 日志")
	flag.Parse()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	db, err := model.Open(cfg)
	if err != nil {
		logrus.Errorf("初始化数据库失败: %v", err)
		os.Exit(-1)
	}
	defer db.Close()

	store := graph.NewStore()
	if err := loader.Populate(store, sizes); err != nil {
		logrus.Errorf("生成数据失败: %v", err)
		os.Exit(-1)
	}
	students, _ := store.Entities(graph.KindStudent)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		logrus.Info("In Load Task1")
		defer wg.Done()
		loader.InsertGraph(db, store)
	}()

	// 写入的同时在内存图上调整师生关系
	var task1ErrorCount int
	wg.Add(1)
	go func() {
		defer wg.Done()
		teachers, _ := store.Entities(graph.KindTeacher)
		if len(teachers) == 0 {
			return
		}
		for i, st := range students {
			t := teachers[i%len(teachers)]
			if err := store.AddToManyMember(t, "students", st); err != nil {
				logrus.Errorf("IN Relink Task1 错误: id=%s, ERROR: %v", st, err)
				task1ErrorCount++
			}
		}
	}()

	// 快照在读锁内拷贝, 用来检查双向关系是否一致
	var task2ErrorCount int
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			task2ErrorCount += checkSymmetry(store.Snapshot())
		}
	}()

	wg.Wait()
	logrus.Infof("task1ErrorCount: %d task2ErrorCount: %d ", task1ErrorCount, task2ErrorCount)

	if err := loader.InsertGraph(db, store); err != nil {
		os.Exit(-1)
	}
	loaded, err := db.LoadGraph()
	if err != nil {
		logrus.Errorf("加载失败: %v", err)
		os.Exit(-1)
	}
	logrus.Infof("内存实体: %d 加载实体: %d", store.Len(), loaded.Len())
}

func checkSymmetry(records []graph.Record) int {
	byID := make(map[uuid.UUID]graph.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	errCount := 0
	for _, r := range records {
		if r.Kind != graph.KindStudent {
			continue
		}
		teacher, ok := r.ToOne["teacher"]
		if !ok {
			continue
		}
		if !slices.Contains(byID[teacher].ToMany["students"], r.ID) {
			logrus.Errorf("IN Query Task2 关系不一致: student=%s teacher=%s", r.ID, teacher)
			errCount++
		}
	}
	return errCount
}
