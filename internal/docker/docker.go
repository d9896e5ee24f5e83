package docker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"lockgraphx/internal/config"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	// ContainerName is the name of the Neo4j container managed by lockgraphx.
	ContainerName = "lockgraphx-neo4j"
	// DataDir is the host directory mounted as the Neo4j data volume.
	DataDir = "neo4j-data"
)

// StartContainerOptions configures StartContainer.
type StartContainerOptions struct {
	Config *config.Config
}

// StartContainer starts a Neo4j container for browsing exported waits-for
// graphs. If the container already exists it is restarted instead of
// recreated, preserving the data volume.
func StartContainer(ctx context.Context, opts StartContainerOptions) error {
	cfg := opts.Config

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	// Reuse an existing container if one was created earlier
	existingID, running, err := findContainer(ctx, cli)
	if err != nil {
		return err
	}
	if running {
		fmt.Printf("Container %s is already running\n", ContainerName)
		return nil
	}
	if existingID != "" {
		fmt.Printf("Starting existing container %s...\n", ContainerName)
		if err := cli.ContainerStart(ctx, existingID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}
		fmt.Printf("✓ Container %s started\n", ContainerName)
		return nil
	}

	fmt.Printf("Pulling image %s...\n", cfg.Neo4j.DockerImage)
	reader, err := cli.ImagePull(ctx, cfg.Neo4j.DockerImage, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", cfg.Neo4j.DockerImage, err)
	}
	// Drain the pull progress stream so the pull completes before create
	if _, err := io.Copy(io.Discard, reader); err != nil {
		reader.Close()
		return fmt.Errorf("failed to pull image %s: %w", cfg.Neo4j.DockerImage, err)
	}
	reader.Close()

	exposedPorts, portBindings, err := nat.ParsePortSpecs([]string{"7474:7474", "7687:7687"})
	if err != nil {
		return fmt.Errorf("failed to parse port specs: %w", err)
	}

	dataPath, err := filepath.Abs(DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	containerConfig := &container.Config{
		Image: cfg.Neo4j.DockerImage,
		Env: []string{
			fmt.Sprintf("NEO4J_AUTH=%s/%s", cfg.Neo4j.User, cfg.Neo4j.Password),
		},
		ExposedPorts: exposedPorts,
	}
	hostConfig := &container.HostConfig{
		PortBindings: portBindings,
		Binds:        []string{dataPath + ":/data"},
	}

	fmt.Printf("Creating container %s...\n", ContainerName)
	resp, err := cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, ContainerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	fmt.Printf("✓ Container %s started\n", ContainerName)
	fmt.Println("  Neo4j browser: http://localhost:7474")
	fmt.Println("  Bolt endpoint: bolt://localhost:7687")

	return nil
}

// StopContainer stops and removes the managed Neo4j container, preserving
// the data volume on disk.
func StopContainer(ctx context.Context) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	containerID, _, err := findContainer(ctx, cli)
	if err != nil {
		return err
	}
	if containerID == "" {
		return fmt.Errorf("container %s not found", ContainerName)
	}

	// Stop container
	fmt.Printf("Stopping container %s...\n", ContainerName)
	timeout := 10 // seconds
	if err := cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		// Container might already be stopped, try to remove anyway
		fmt.Printf("Warning: failed to stop container: %v\n", err)
	} else {
		fmt.Printf("✓ Container stopped\n")
	}

	// Remove container
	fmt.Printf("Removing container %s...\n", ContainerName)
	if err := cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	fmt.Printf("✓ Container %s removed successfully\n", ContainerName)
	fmt.Printf("\nNote: Data has been preserved in the %s directory\n", DataDir)

	return nil
}

// findContainer looks up the managed container by name and reports its id
// and whether it is currently running.
func findContainer(ctx context.Context, cli *client.Client) (string, bool, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return "", false, fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		for _, name := range c.Names {
			if name == "/"+ContainerName {
				return c.ID, c.State == "running", nil
			}
		}
	}
	return "", false, nil
}
