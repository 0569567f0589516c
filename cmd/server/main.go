package main

import (
	"context"
	"log"
	"time"

	"github.com/haatos/simple-deploy/internal"
	"github.com/haatos/simple-deploy/internal/handler"
	"github.com/haatos/simple-deploy/internal/security"
	"github.com/haatos/simple-deploy/internal/service"
	"github.com/haatos/simple-deploy/internal/settings"
	"github.com/haatos/simple-deploy/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	internal.InitializeConfiguration()
	settings.Settings.SessionExpires = time.Duration(internal.Config.SessionExpiresHours)

	hashKey, blockKey := security.NewKeys()

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	scheduler := service.NewScheduler()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Printf("err shutting down scheduler: %+v\n", err)
		}
	}()

	projectStore := store.NewProjectSQLiteStore(rdb, rwdb)
	pipelineStore := store.NewPipelineSQLiteStore(rdb, rwdb)
	deploymentStore := store.NewDeploymentSQLiteStore(rdb, rwdb)
	userStore := store.NewUserSQLiteStore(rdb, rwdb)

	workspace := service.NewGitWorkspace()
	runner := service.NewPipelineRunner(
		projectStore,
		pipelineStore,
		deploymentStore,
		workspace,
		service.NewShellExecutor(),
		service.NewWebhookSender(),
	)
	queue := service.NewExecutionQueue(
		deploymentStore,
		runner,
		internal.Config.QueueSize,
		time.Duration(internal.Config.TaskDelayMillis),
	)
	if err := queue.Initialize(context.Background()); err != nil {
		log.Fatal(err)
	}
	queue.SchedulePolling(scheduler, time.Duration(internal.Config.PollIntervalSeconds))
	go queue.Run()
	defer queue.Shutdown()

	cookieSvc := service.NewCookieService(hashKey, blockKey)
	userSvc := service.NewUserService(userStore, security.NewAESEncrypter(blockKey))
	projectSvc := service.NewProjectService(projectStore, workspace)
	pipelineSvc := service.NewPipelineService(pipelineStore)
	deploymentSvc := service.NewDeploymentService(deploymentStore, queue)
	giteaClient := service.NewGiteaClient()

	if err := pipelineSvc.InitializeTemplates(context.Background()); err != nil {
		log.Fatal(err)
	}
	userSvc.InitializeAdminUser(context.Background())

	if err := userSvc.ScheduleSessionCleanup(scheduler); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	authH := handler.NewAuthHandler(userSvc, giteaClient, cookieSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	pipelineH := handler.NewPipelineHandler(pipelineSvc)
	deploymentH := handler.NewDeploymentHandler(deploymentSvc)
	gitH := handler.NewGitHandler(projectSvc, userSvc, giteaClient)

	e := setupEcho()
	router := e.Group("", handler.SessionMiddleware(userSvc, cookieSvc))

	router.GET("/auth/gitea/login", authH.GetGiteaLogin)
	router.GET("/auth/gitea/callback", authH.GetGiteaCallback)
	router.POST("/auth/login", authH.PostLogin)
	router.POST("/auth/logout", authH.PostLogout)

	api := router.Group("/api", handler.IsAuthenticated)
	api.GET("/me", authH.GetMe)

	api.GET("/config", handler.GetConfig, handler.IsAdmin)
	api.POST("/config", handler.PostConfig, handler.IsAdmin)

	api.GET("/projects", projectH.GetProjects)
	api.POST("/projects", projectH.PostProject)
	api.GET("/projects/:project_id", projectH.GetProject)
	api.PATCH("/projects/:project_id", projectH.PatchProject)
	api.DELETE("/projects/:project_id", projectH.DeleteProject)
	api.GET("/projects/:project_id/git-info", projectH.GetProjectGitInfo)
	api.GET("/projects/:project_id/workspace-status", projectH.GetProjectWorkspaceStatus)

	api.GET("/projects/:project_id/branches", gitH.GetProjectBranches)
	api.GET("/projects/:project_id/commits", gitH.GetProjectCommits)

	api.GET("/projects/:project_id/pipelines", pipelineH.GetProjectPipelines)
	api.GET("/pipeline-templates", pipelineH.GetTemplatePipelines)
	api.POST("/pipelines", pipelineH.PostPipeline)
	api.POST("/pipelines/from-template", pipelineH.PostPipelineFromTemplate)
	api.GET("/pipelines/:pipeline_id", pipelineH.GetPipeline)
	api.PATCH("/pipelines/:pipeline_id", pipelineH.PatchPipeline)
	api.DELETE("/pipelines/:pipeline_id", pipelineH.DeletePipeline)
	api.POST("/pipelines/:pipeline_id/steps", pipelineH.PostStep)
	api.PATCH("/pipelines/:pipeline_id/steps/:step_id", pipelineH.PatchStep)
	api.DELETE("/pipelines/:pipeline_id/steps/:step_id", pipelineH.DeleteStep)

	api.POST("/projects/:project_id/deployments", deploymentH.PostDeployment)
	api.GET("/projects/:project_id/deployments", deploymentH.GetProjectDeployments)
	api.GET("/deployments/:deployment_id", deploymentH.GetDeployment)
	api.GET("/deployments/:deployment_id/log", deploymentH.GetDeploymentLog)
	api.GET("/deployments/:deployment_id/status", deploymentH.GetDeploymentStatus)
	api.DELETE("/deployments/:deployment_id", deploymentH.DeleteDeployment)
	api.GET("/queue/status", deploymentH.GetQueueStatus)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
