package references

import (
	"fmt"
	"net/http"
	"time"

	"ldserver/api/contexts"
	"ldserver/api/models/dtos"
	"ldserver/api/models/indexes"

	"github.com/ahmetb/go-linq"
	"github.com/labstack/echo"
)

func GetCorrelations(c echo.Context) error {
	fmt.Printf("[%s] - GetCorrelations hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	correlations, err := gc.Registry.Correlations(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(correlations))
}

func GetGenomeBuilds(c echo.Context) error {
	fmt.Printf("[%s] - GetGenomeBuilds hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	builds, err := gc.Registry.GenomeBuilds(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(builds))
}

func GetReferences(c echo.Context) error {
	fmt.Printf("[%s] - GetReferences hit!\n", time.Now())
	gc := c.(*contexts.LdContext)
	ctx := c.Request().Context()

	datasets, err := gc.Orchestrator.References(ctx, c.Param("build"))
	if err != nil {
		return err
	}
	references := []dtos.Reference{}
	linq.From(datasets).SelectT(func(g indexes.GenotypeDataset) dtos.Reference {
		return dtos.Reference{Name: g.Name, Description: g.Description, GenomeBuild: g.GenomeBuild}
	}).ToSlice(&references)
	return c.JSON(http.StatusOK, dtos.Ok(references))
}

func GetReference(c echo.Context) error {
	fmt.Printf("[%s] - GetReference hit!\n", time.Now())
	gc := c.(*contexts.LdContext)
	ctx := c.Request().Context()

	g, err := gc.Orchestrator.Reference(ctx, c.Param("build"), c.Param("reference"))
	if err != nil {
		return err
	}
	subsets, err := gc.Registry.SampleSubsets(ctx, g.Id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(dtos.Reference{
		Name:        g.Name,
		Description: g.Description,
		GenomeBuild: g.GenomeBuild,
		Populations: subsets,
	}))
}

func GetPopulations(c echo.Context) error {
	fmt.Printf("[%s] - GetPopulations hit!\n", time.Now())
	gc := c.(*contexts.LdContext)
	ctx := c.Request().Context()

	g, err := gc.Orchestrator.Reference(ctx, c.Param("build"), c.Param("reference"))
	if err != nil {
		return err
	}
	subsets, err := gc.Registry.SampleSubsets(ctx, g.Id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(subsets))
}

func GetPopulation(c echo.Context) error {
	fmt.Printf("[%s] - GetPopulation hit!\n", time.Now())
	gc := c.(*contexts.LdContext)
	ctx := c.Request().Context()
	population := c.Param("population")

	g, err := gc.Orchestrator.Population(ctx, c.Param("build"), c.Param("reference"), population)
	if err != nil {
		return err
	}
	size, err := gc.Registry.SamplesCount(ctx, g.Id, population)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(dtos.Population{Name: population, Size: size}))
}

func GetChromosomes(c echo.Context) error {
	fmt.Printf("[%s] - GetChromosomes hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	chroms, err := gc.Orchestrator.Chromosomes(c.Request().Context(), c.Param("build"), c.Param("reference"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(chroms))
}
