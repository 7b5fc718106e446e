package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/kurum-rebirth/kurum-sync/internal/api/v1"
	syncapp "github.com/kurum-rebirth/kurum-sync/internal/app"
	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/status"
	"github.com/kurum-rebirth/kurum-sync/test-integration/sync/helpers"
)

const (
	gameKey     = "hollow_knight"
	gameProcess = "hollow_knight.x86_64"
)

var _ = Describe("Save Sync Between Machines", Label("sync"), func() {
	var (
		tempDir   string
		remoteDir string
		desktop   *helpers.Machine
		laptop    *helpers.Machine
	)

	BeforeEach(func() {
		tempDir = createTempDir("kurum-sync-test-")
		remoteDir = filepath.Join(tempDir, "remote")

		configs := map[string]string{gameKey: helpers.GameConfig("Hollow Knight", gameProcess)}
		desktop = helpers.NewMachine(ctx, filepath.Join(tempDir, "desktop"), remoteDir, configs)
		laptop = helpers.NewMachine(ctx, filepath.Join(tempDir, "laptop"), remoteDir, configs)
	})

	AfterEach(func() {
		cleanupTempDir(tempDir)
	})

	Context("when the init task is unanswered", func() {
		It("should suspend the config and reactivate it once answered", func() {
			By("polling without a save folder")
			Expect(desktop.Poll(ctx)).To(Succeed())
			s := desktop.Status(ctx, gameKey)
			Expect(s).NotTo(BeNil())
			Expect(s.Phase).To(Equal(status.SyncPhaseSuspended))
			Expect(s.PendingInitTask).To(Equal("save_dir"))

			By("answering the init task")
			desktop.AnswerSaveDir(gameKey)
			Expect(desktop.Poll(ctx)).To(Succeed())

			s = desktop.Status(ctx, gameKey)
			Expect(s.Phase).To(Equal(status.SyncPhaseActive))
			Expect(s.PendingInitTask).To(BeEmpty())
		})
	})

	Context("when the watched process exits", func() {
		BeforeEach(func() {
			desktop.AnswerSaveDir(gameKey)
			laptop.AnswerSaveDir(gameKey)
		})

		It("should back up on one machine and restore on the other", func() {
			desktop.WriteSave("user1.sav", "dream nail acquired")
			desktop.WriteSave("backup/user1.sav.bak", "ignored")

			By("running the game on the desktop")
			desktop.Lister.SetRunning(gameProcess, "bash")
			Expect(desktop.Poll(ctx)).To(Succeed())
			Expect(desktop.Status(ctx, gameKey).Phase).To(Equal(status.SyncPhaseActive))

			By("closing the game")
			desktop.Lister.SetRunning("bash")
			Expect(desktop.Poll(ctx)).To(Succeed())

			s := desktop.Status(ctx, gameKey)
			Expect(s.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(s.LastOperation).To(Equal(status.OperationBackup))
			Expect(s.LastBackupTime).NotTo(BeNil())
			Expect(filepath.Join(remoteDir, "backups", gameKey, "saves.zip")).To(BeAnExistingFile())

			By("polling on the laptop")
			Expect(laptop.Poll(ctx)).To(Succeed())

			content, err := laptop.ReadSave("user1.sav")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("dream nail acquired"))
			_, err = laptop.ReadSave("backup/user1.sav.bak")
			Expect(err).To(HaveOccurred())

			s = laptop.Status(ctx, gameKey)
			Expect(s.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(s.LastOperation).To(Equal(status.OperationRestore))

			By("polling the laptop again")
			laptop.WriteSave("user1.sav", "local progress")
			Expect(laptop.Poll(ctx)).To(Succeed())
			content, err = laptop.ReadSave("user1.sav")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("local progress"), "an up to date machine must not restore again")

			By("polling the desktop again")
			Expect(desktop.Poll(ctx)).To(Succeed())
			Expect(desktop.Status(ctx, gameKey).LastOperation).To(Equal(status.OperationBackup),
				"the machine that uploaded must not restore its own backup")
		})
	})
})

var _ = Describe("Status Server", Label("api"), func() {
	var (
		tempDir string
		agent   *syncapp.SyncApp
		done    chan error
	)

	BeforeEach(func() {
		tempDir = createTempDir("kurum-sync-api-test-")

		cfg := &config.Config{
			DataDir:      filepath.Join(tempDir, "data"),
			Platform:     helpers.Platform,
			PollInterval: "50ms",
			StatusServer: &config.StatusServerConfig{Enabled: true, Address: "127.0.0.1:0"},
			Storage: &config.StorageConfig{
				Type:  config.StorageTypeLocal,
				Local: &config.LocalConfig{Root: filepath.Join(tempDir, "remote")},
			},
		}

		var err error
		agent, err = syncapp.NewSyncApp(ctx,
			syncapp.WithConfig(cfg),
			syncapp.WithProcessLister(&helpers.ScriptedLister{}),
			syncapp.WithSyncConfigs(),
		)
		Expect(err).NotTo(HaveOccurred())

		done = make(chan error, 1)
		go func() {
			done <- agent.Start(ctx)
		}()
		Eventually(agent.StatusAddr, 5*time.Second).ShouldNot(BeNil())
	})

	AfterEach(func() {
		Expect(agent.Stop(time.Second)).To(Succeed())
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
		cleanupTempDir(tempDir)
	})

	It("should report readiness once storage is reachable", func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/readiness", agent.StatusAddr()))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should list the known configs", func() {
		resp, err := http.Get(fmt.Sprintf("http://%s/v1/configs", agent.StatusAddr()))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var list v1.ConfigListResponse
		Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
		Expect(list.Total).To(Equal(0))
	})
})
