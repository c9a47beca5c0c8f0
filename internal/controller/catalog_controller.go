package controller

import (
	"course-buddy-be/internal/pkg/serverutils"
	"course-buddy-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	ListCourses(ctx *fiber.Ctx) error
	ShowCourse(ctx *fiber.Ctx) error
	ShowLecture(ctx *fiber.Ctx) error
}

type catalogController struct {
	catalogService service.ICatalogService
}

func NewCatalogController(catalogService service.ICatalogService) ICatalogController {
	return &catalogController{
		catalogService: catalogService,
	}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	r.Get("/courses", c.ListCourses)
	r.Get("/courses/:id", c.ShowCourse)
	r.Get("/lectures/:id", c.ShowLecture)
}

func (c *catalogController) ListCourses(ctx *fiber.Ctx) error {
	res, err := c.catalogService.ListCourses(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list courses", res))
}

func (c *catalogController) ShowCourse(ctx *fiber.Ctx) error {
	res, err := c.catalogService.GetCourse(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show course", res))
}

func (c *catalogController) ShowLecture(ctx *fiber.Ctx) error {
	res, err := c.catalogService.GetLecture(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show lecture", res))
}
